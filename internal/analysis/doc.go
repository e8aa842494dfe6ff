// Package analysis computes exploratory statistics and baseline power-curve
// models over a cleaned turbine dataset: column summaries, a Pearson
// correlation matrix with threshold feature selection, and a seeded
// train/test comparison of simple regressors scored by MAE, MSE and R².
package analysis
