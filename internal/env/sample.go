package env

// Sample represents a single housing temperature and pressure measurement
// (BMP280 inside the buoy hull).
type Sample struct {
	Temperature float64 `json:"temp_c"`      // °C
	Pressure    float64 `json:"pressure_pa"` // Pa
}
