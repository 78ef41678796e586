// Package analysis provides trajectory analysis tools.
//
//   - [PowerSpectrum]: frequency content of a recorded signal
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [LyapunovSpectrum]: per-dimension divergence rates
//
// A positive largest Lyapunov exponent indicates chaotic dynamics,
// which the double pendulum exhibits for large initial angles.
package analysis
