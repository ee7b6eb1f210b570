// Package control implements the PID feedback controller driving the
// platform simulation.
//
// The controller keeps its integrator and derivative state between calls
// and supports disabling individual terms at runtime:
//
//	pid := control.NewPID(3.345, 0.014, 3.486)
//	out := pid.Update(setpoint, measured, dt, control.AllEnabled())
//
// Update returns the full term breakdown so callers never need to reach
// into controller internals to plot or log individual components.
package control
