// Package physics models the one-dimensional platform the controller
// pushes around.
//
// The platform integrates control force, wind, and velocity damping with a
// static-friction deadband: net forces below the deadband threshold cannot
// start motion, and a slowly moving platform inside the deadband stops
// outright. A plain PID controller with low gains can get trapped in this
// dead zone, which is the behavior the simulation exists to demonstrate.
package physics
