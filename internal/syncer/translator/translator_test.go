package translator

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maintainly/fssync/internal/model"
)

func TestOperatingSystem(t *testing.T) {
	cases := map[string]model.OperatingSystem{
		"Windows Server 2022 Datacenter":   model.OSWindowsServer2022,
		"windows server 2012 R2":           model.OSWindowsServer2012,
		"WINDOWS SERVER 2019":              model.OSWindowsServer2019,
		"Windows 10 Pro":                   model.OSWindows10,
		"Windows 11 Enterprise":            model.OSWindows11,
		"Debian 11":                        model.OSDebian11,
		"Debian GNU/Linux 12 (bookworm)":   model.OSDebian12,
		"Ubuntu 22.04 LTS":                 model.OSUbuntu22,
		"ubuntu server 20.04":              model.OSUbuntu20,
		"Red Hat Enterprise Linux 9":       model.OSRHEL,
		"VMware ESXi 7.0 U3":               model.OSESXi,
		"Proxmox VE 8":                     model.OSProxmox,
		"macOS Sonoma":                     model.OSMacOS,
		"Mac OS X":                         model.OSMacOS,
		"CentOS 7":                         model.OSCentOS,
		"SLES 15":                          model.OSSUSE,
		"":                                 model.OSOther,
		"   ":                              model.OSOther,
		"FreeBSD 14":                       model.OSOther,
		"Windows Server (unknown edition)": model.OSOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, OperatingSystem(in), "input %q", in)
	}
}

func TestServerApplicationType(t *testing.T) {
	cases := map[string]model.ServerApplicationType{
		"SQL Server":                  model.RoleSQL,
		"Datenbankserver":             model.RoleSQL,
		"Exchange":                    model.RoleExchange,
		"Domänencontroller":           model.RoleDomain,
		"Active Directory":            model.RoleDomain,
		"AD":                          model.RoleDomain,
		"Fileserver":                  model.RoleFile,
		"Dateiserver":                 model.RoleFile,
		"Backup":                      model.RoleBackup,
		"Datensicherung":              model.RoleBackup,
		"Terminalserver":              model.RoleRDS,
		"Remote Desktop Session Host": model.RoleRDS,
		"Anwendungsserver":            model.RoleApplication,
		"Application":                 model.RoleApplication,
		"Sonstige":                    model.RoleOther,
		"Keine":                       model.RoleNone,
		"":                            model.RoleNone,
		"Admin workstation":           model.RoleNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, ServerApplicationType(in), "input %q", in)
	}
}

func TestMaintenanceInterval(t *testing.T) {
	cases := map[string]model.MaintenanceInterval{
		"Monatlich":     model.IntervalMonthly,
		"monthly":       model.IntervalMonthly,
		"Quartalsweise": model.IntervalQuarterly,
		"Halbjährlich":  model.IntervalSemiAnnual,
		"Semi-annual":   model.IntervalSemiAnnual,
		"Jährlich":      model.IntervalAnnual,
		"yearly":        model.IntervalAnnual,
		"":              model.IntervalNone,
		"irgendwann":    model.IntervalNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, MaintenanceInterval(in), "input %q", in)
	}
}

func TestHardwareType(t *testing.T) {
	assert.Equal(t, model.HardwareVirtual, HardwareType("true", "Server"))
	assert.Equal(t, model.HardwareVirtual, HardwareType("Virtuell", ""))
	assert.Equal(t, model.HardwareVirtual, HardwareType("VM", ""))
	assert.Equal(t, model.HardwarePhysical, HardwareType("Physisch", "Virtual Server"))
	assert.Equal(t, model.HardwareVirtual, HardwareType("", "Virtual Machine"))
	assert.Equal(t, model.HardwarePhysical, HardwareType("false", "Server"))
	assert.Equal(t, model.HardwarePhysical, HardwareType("", ""))
}

func TestTranslatorsAreTotal(t *testing.T) {
	inputs := []string{"", " ", "\x00", "😀", "Windows", "2022", "sql sql sql", "ÄÖÜß", "ubuntu", "-", "|"}
	for _, in := range inputs {
		assert.True(t, slices.Contains(model.OperatingSystems, OperatingSystem(in)), "os %q", in)
		assert.True(t, slices.Contains(model.ServerApplicationTypes, ServerApplicationType(in)), "role %q", in)
	}
}
