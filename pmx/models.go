package pmx

// Model represents a servo model specification.
type Model struct {
	Name         string
	Number       uint16 // Model number reported by SystemRead
	SeriesNumber uint16
	MaxTorque    float64 // Stall torque in N·m at nominal voltage

	// PositionRange is the usable position span in centidegrees, symmetric
	// around zero.
	PositionRange int32
}

// BaudRates maps the baud register values to bits per second, in register
// value order.
var BaudRates = []int{
	57600,   // Baud57600
	115200,  // Baud115200
	625000,  // Baud625000
	1000000, // Baud1000000
	1250000, // Baud1250000
	1500000, // Baud1500000
	2000000, // Baud2000000
	3000000, // Baud3000000
}

// BaudRateValue returns the register value for a baud rate, or -1 if the
// rate is not supported.
func BaudRateValue(baudRate int) int {
	for i, rate := range BaudRates {
		if rate == baudRate {
			return i
		}
	}
	return -1
}

// Predefined servo models.
var (
	ModelSAV70 = Model{
		Name:          "pmx-sav70",
		Number:        7001,
		SeriesNumber:  1,
		MaxTorque:     7.1,
		PositionRange: 32000,
	}

	ModelSCR9204 = Model{
		Name:          "pmx-scr9204",
		Number:        9204,
		SeriesNumber:  2,
		MaxTorque:     9.2,
		PositionRange: 32000,
	}
)

// modelRegistry holds all known models indexed by name and number.
var modelRegistry = struct {
	byName   map[string]*Model
	byNumber map[uint16]*Model
}{
	byName:   make(map[string]*Model),
	byNumber: make(map[uint16]*Model),
}

func init() {
	// Register built-in models
	RegisterModel(&ModelSAV70)
	RegisterModel(&ModelSCR9204)
}

// RegisterModel adds a model to the registry.
func RegisterModel(m *Model) {
	modelRegistry.byName[m.Name] = m
	modelRegistry.byNumber[m.Number] = m
}

// GetModel returns a model by name.
func GetModel(name string) (*Model, bool) {
	m, ok := modelRegistry.byName[name]
	return m, ok
}

// GetModelByNumber returns a model by its hardware model number.
func GetModelByNumber(number uint16) (*Model, bool) {
	m, ok := modelRegistry.byNumber[number]
	return m, ok
}

// ListModels returns all registered model names.
func ListModels() []string {
	names := make([]string, 0, len(modelRegistry.byName))
	for name := range modelRegistry.byName {
		names = append(names, name)
	}
	return names
}
