package domain

// Schema field names in training order. The trained classifier is
// order-sensitive: a row whose names or order differ is rejected.
const (
	FieldMaxTempC        = "max_temp_c"
	FieldMinTempC        = "min_temp_c"
	FieldAvgTempC        = "avg_temp_c"
	FieldHeatingDegDaysC = "heating_deg_days_c"
	FieldCoolingDegDaysC = "cooling_deg_days_c"
	FieldPrecipMM        = "precip_mm"
	FieldAvgHumidity     = "avg_humidity"
	FieldAvgWindKnots    = "avg_wind_speed_knots"
	FieldAvgDewPointF    = "avg_dew_point_f"
	FieldAvgVisibilityKM = "avg_visibility_km"
	FieldAvgPressureMB   = "avg_sea_level_pressure_mb"
	FieldTempRangeC      = "temp_range_c"
	FieldHeatIndex       = "heat_index"
	FieldDroughtFlag     = "drought_indicator"
)

// FeatureVector is the full 14-field input to probability estimation: the
// eleven raw observation fields plus three derived ones.
type FeatureVector struct {
	WeatherObservation

	TempRangeC       float64
	HeatIndex        float64
	DroughtIndicator float64
}

// FeatureField pairs a schema name with its value in a feature row.
type FeatureField struct {
	Name  string
	Value float64
}

// DeriveFeatures computes the derived fields from a validated observation.
// Pure function: no side effects, total over finite inputs.
//
//   - temp_range_c: daily temperature span
//   - heat_index: avg temp scaled by humidity
//   - drought_indicator: 1 when the day is both dry (<5mm) and hot (>25C)
func DeriveFeatures(obs WeatherObservation) FeatureVector {
	drought := 0.0
	if obs.PrecipMM < 5 && obs.AvgTempC > 25 {
		drought = 1.0
	}

	return FeatureVector{
		WeatherObservation: obs,
		TempRangeC:         obs.MaxTempC - obs.MinTempC,
		HeatIndex:          obs.AvgTempC * (1 + 0.01*obs.AvgHumidity),
		DroughtIndicator:   drought,
	}
}

// Fields returns the vector as an ordered name/value row matching the
// training schema exactly.
func (v FeatureVector) Fields() []FeatureField {
	return []FeatureField{
		{FieldMaxTempC, v.MaxTempC},
		{FieldMinTempC, v.MinTempC},
		{FieldAvgTempC, v.AvgTempC},
		{FieldHeatingDegDaysC, v.HeatingDegDaysC},
		{FieldCoolingDegDaysC, v.CoolingDegDaysC},
		{FieldPrecipMM, v.PrecipMM},
		{FieldAvgHumidity, v.AvgHumidity},
		{FieldAvgWindKnots, v.AvgWindKnots},
		{FieldAvgDewPointF, v.AvgDewPointF},
		{FieldAvgVisibilityKM, v.AvgVisibilityKM},
		{FieldAvgPressureMB, v.AvgPressureMB},
		{FieldTempRangeC, v.TempRangeC},
		{FieldHeatIndex, v.HeatIndex},
		{FieldDroughtFlag, v.DroughtIndicator},
	}
}

// FeatureNames returns the schema's field names in training order.
func FeatureNames() []string {
	fields := FeatureVector{}.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
