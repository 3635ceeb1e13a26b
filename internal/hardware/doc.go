// Package hardware contains the drivers for the physical sensors and
// relay pins the hub controls.
//
// Two variants exist for every capability, selected at construction time
// from config (hardware.mode):
//
//   - real: sysfs-backed drivers for the Raspberry Pi. DS18B20 sensors
//     are read through the 1-wire bus (/sys/bus/w1/devices), DHT22
//     sensors through the kernel's industrial I/O interface
//     (/sys/bus/iio/devices, dtoverlay=dht11), and relay pins through
//     the GPIO character interface exported at /sys/class/gpio.
//   - simulated: in-memory drivers producing plausible jittered values
//     so the hub runs on development machines with no hardware attached.
//
// Driver errors are classified with the sentinel errors in errors.go.
// Transient conditions (sensor busy, checksum failure, not ready) are
// expected during normal operation and callers keep their previous
// reading; see IsTransient.
package hardware
