// Package viz draws gravsim runs in the terminal.
//
// [Model] is the Bubble Tea program behind `gravsim watch`. It steps an
// engine a few ticks per frame and shows the active solver, Barnes-Hut tree
// statistics, phase timings and an energy-drift graph. There is no scene
// rendering; bodies are summarised, not plotted.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial bodies
//	+/-   - Double/halve ticks per frame
//	T     - Cycle themes
//	?     - Help overlay
//	Q     - Quit
//
// [Plot], [EnergySeries] and [TickSeries] render stored runs for `gravsim show`.
package viz
