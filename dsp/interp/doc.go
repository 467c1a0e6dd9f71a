// Package interp resamples irregular or coarse sample grids onto uniform
// grids.
//
// Available methods, from cheapest to smoothest:
//
//   - [ModeLinear]:         piecewise linear
//   - [ModeFritschButland]: monotone piecewise cubic
//   - [ModeAkima]:          Akima spline
//
// Fitting is delegated to gonum's interp package.
package interp
