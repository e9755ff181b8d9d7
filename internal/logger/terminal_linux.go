//go:build linux

package logger

// ioctlGetTermios is TCGETS, the ioctl number for reading terminal
// attributes on Linux.
const ioctlGetTermios = 0x5401
