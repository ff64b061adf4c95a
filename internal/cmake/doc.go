// Package cmake drives the native configuration and compilation of OpenCV.
//
// Configuration runs cmake once with a fixed argument set derived from the
// BuildConfiguration and captures its combined output to a log file. Two
// facts are then scraped from that log with exact string matching against
// the OpenCV configuration summary:
//
//	--     Java wrappers:               YES
//	--     CMake build tool:            /usr/bin/make
//
// The first is a precondition for compiling at all; the second selects the
// native build tool and its argument conventions. The scanners are pure
// functions over the log text so they can be tested without running cmake.
package cmake
