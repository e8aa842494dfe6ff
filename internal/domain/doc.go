// Package domain models 10-minute wind turbine readings and the two
// transforms applied to them: power normalization and Tukey outlier removal.
//
// # Data Source
//
// Readings come from the six per-turbine tables published with Ding, Y.
// (2019) "Data Science for Wind Energy". Each turbine has its own CSV file:
//
//	Inland Wind Farm Dataset1(WT1).csv ... (WT4).csv   → source "inland"
//	Offshore Wind Farm Dataset1(WT5).csv ... (WT6).csv → source "offshore"
//
// The environmental covariates were measured on a met mast shared by two
// turbines; the power column was measured at the turbine itself.
//
// # Column Conventions
//
//	V     wind speed (m/s)
//	D     wind direction (degrees, 0–360)
//	rho   air density (kg/m³), header "air density"
//	I     turbulence intensity (dimensionless)
//	S_b   below-hub wind shear (dimensionless)
//	y     power as a percentage of rated capacity, header
//	      "y (% relative to rated power)"; nominally 0–100 but sensor noise
//	      produces values outside that range
//	H     humidity, S_a above-hub wind shear: only present on some files and
//	      dropped at load time
//
// Columns are matched by header name, never by position. See [NewColumnMap].
// Empty cells and the literals "NA"/"NaN" are recorded as missing in
// [Reading.Missing] instead of being stored as NaN.
//
// # Rated Capacity
//
// Percent-to-rated values are only comparable within one source. The absolute
// output is derived with a fixed nameplate capacity per source:
//
//	inland:   2.5 MW
//	offshore: 4.0 MW
//
// # Outlier Filter
//
// Fences are computed per source and per screened field using the 25th and
// 75th percentiles (linear interpolation at rank (n-1)·p) and Tukey's 1.5×IQR
// rule. All fences are captured before any reading is removed, so the order
// in which fields are screened never changes the outcome.
package domain
