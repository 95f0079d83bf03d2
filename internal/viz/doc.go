// Package viz renders traces and analysis results for the terminal and for
// image files.
//
//   - [TracePlot], [BifurcationPlot], [SweepPlot]: asciigraph line charts
//   - [Canvas], [Scatter]: Braille pixel canvas for phase portraits
//   - [SaveTracePNG], [SavePhasePNG], [SaveBifurcationPNG]: gonum/plot output
//   - lipgloss styles shared with the live view
package viz
