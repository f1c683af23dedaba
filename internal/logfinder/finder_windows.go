//go:build windows

package logfinder

import (
	"golang.org/x/sys/windows/registry"
)

const (
	registryPath = `SOFTWARE\Blizzard Entertainment\Diablo II`
	registryName = "InstallPath"
)

func commonInstallDirs() []string {
	return []string{
		`C:\Diablo II`,
		`D:\Diablo II`,
		`E:\Diablo II`,
		`C:\Program Files\Diablo II`,
		`C:\Program Files (x86)\Diablo II`,
		`D:\Program Files\Diablo II`,
		`D:\Program Files (x86)\Diablo II`,
	}
}

// registryInstallDirs reads InstallPath from HKLM then HKCU, in both the
// native and the 32-bit registry views.
func registryInstallDirs() []string {
	var dirs []string
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		for _, view := range []uint32{0, registry.WOW64_32KEY} {
			if dir := readInstallPath(root, view); dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

func readInstallPath(root registry.Key, view uint32) string {
	k, err := registry.OpenKey(root, registryPath, registry.QUERY_VALUE|view)
	if err != nil {
		return ""
	}
	defer k.Close()

	v, _, err := k.GetStringValue(registryName)
	if err != nil {
		return ""
	}
	return v
}
