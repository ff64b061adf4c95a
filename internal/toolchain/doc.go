// Package toolchain locates and checks the external tools the build needs.
//
// git, cmake and mvn are resolved from an environment override (GIT, CMAKE,
// MVN) or PATH, then invoked with --version; a tool that cannot be found or
// does not answer is fatal. The Java installation root comes from JAVA_HOME
// or is derived from the real path of the java executable.
package toolchain
