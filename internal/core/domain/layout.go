package domain

const (
	// ConfigFileName is the name of the device and task descriptor.
	ConfigFileName = "blueshift.yaml"

	// DriverLoopback selects the in-process driver.
	DriverLoopback = "loopback"

	// DriverFile selects the file-backed driver.
	DriverFile = "file"

	// DefaultDeviceDir is the directory the file driver uses when none is configured.
	DefaultDeviceDir = "devices"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)
