//go:build !windows && !linux

package logger

// ioctlGetTermios is TIOCGETA, the ioctl number for reading terminal
// attributes on BSD-derived systems (including macOS).
const ioctlGetTermios = 0x40487413
