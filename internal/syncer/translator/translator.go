package translator

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/maintainly/fssync/internal/model"
)

// rule matches when every entry of all matches a word of the input. An entry
// may list alternatives separated by "|". Alternatives of four or more
// characters match as a word prefix ("2012" matches "2012r2"), shorter ones
// only as a whole word ("ad" must not match "admin").
type rule[T any] struct {
	all []string
	to  T
}

var osRules = []rule[model.OperatingSystem]{
	{[]string{"windows|win", "2008"}, model.OSWindowsServer2008},
	{[]string{"windows|win", "2012"}, model.OSWindowsServer2012},
	{[]string{"windows|win", "2016"}, model.OSWindowsServer2016},
	{[]string{"windows|win", "2019"}, model.OSWindowsServer2019},
	{[]string{"windows|win", "2022"}, model.OSWindowsServer2022},
	{[]string{"windows|win", "2025"}, model.OSWindowsServer2025},
	{[]string{"windows|win", "10"}, model.OSWindows10},
	{[]string{"windows|win", "11"}, model.OSWindows11},
	{[]string{"debian", "10|buster"}, model.OSDebian10},
	{[]string{"debian", "11|bullseye"}, model.OSDebian11},
	{[]string{"debian", "12|bookworm"}, model.OSDebian12},
	{[]string{"ubuntu", "24|noble"}, model.OSUbuntu24},
	{[]string{"ubuntu", "22|jammy"}, model.OSUbuntu22},
	{[]string{"ubuntu", "20|focal"}, model.OSUbuntu20},
	{[]string{"ubuntu", "18|bionic"}, model.OSUbuntu18},
	{[]string{"rhel|redhat"}, model.OSRHEL},
	{[]string{"red", "hat"}, model.OSRHEL},
	{[]string{"centos"}, model.OSCentOS},
	{[]string{"suse|sles|opensuse"}, model.OSSUSE},
	{[]string{"esxi|vsphere"}, model.OSESXi},
	{[]string{"proxmox|pve"}, model.OSProxmox},
	{[]string{"macos|osx"}, model.OSMacOS},
	{[]string{"mac", "os"}, model.OSMacOS},
}

var roleRules = []rule[model.ServerApplicationType]{
	{[]string{"none|keine|kein"}, model.RoleNone},
	{[]string{"exchange"}, model.RoleExchange},
	{[]string{"sql|mssql|sqlserver|mysql|postgres|datenbank|database|db"}, model.RoleSQL},
	{[]string{"domain|domäne|domaene|domänencontroller|dc|ad"}, model.RoleDomain},
	{[]string{"active", "directory"}, model.RoleDomain},
	{[]string{"backup|datensicherung|sicherung|veeam"}, model.RoleBackup},
	{[]string{"rds|rdsh|terminal|terminalserver"}, model.RoleRDS},
	{[]string{"remote", "desktop"}, model.RoleRDS},
	{[]string{"file|fileserver|datei|dateiserver|fileshare"}, model.RoleFile},
	{[]string{"application|applikation|anwendung|anwendungsserver|app"}, model.RoleApplication},
	{[]string{"other|others|sonstige|sonstiges|andere"}, model.RoleOther},
}

var intervalRules = []rule[model.MaintenanceInterval]{
	{[]string{"none|keine|kein"}, model.IntervalNone},
	{[]string{"monthly|month|monat|monatlich"}, model.IntervalMonthly},
	{[]string{"quarterly|quarter|quartal|quartalsweise|vierteljährlich"}, model.IntervalQuarterly},
	{[]string{"semi|half|halbjährlich|halbjahr"}, model.IntervalSemiAnnual},
	{[]string{"annual|annually|yearly|year|jährlich|jahr"}, model.IntervalAnnual},
}

var virtualWords = []string{"virtual|virtuell|vm|vmware|hyper|guest"}

// OperatingSystem maps a free-text OS label to the closed OS enum. Unknown or
// empty labels map to OSOther.
func OperatingSystem(raw string) model.OperatingSystem {
	return translate(raw, osRules, model.OSOther)
}

// ServerApplicationType maps a server role label (English or German) to the
// closed role enum. Unknown or empty labels map to RoleNone.
func ServerApplicationType(raw string) model.ServerApplicationType {
	return translate(raw, roleRules, model.RoleNone)
}

// MaintenanceInterval maps the maintenance interval dropdown. Unknown or empty
// labels map to IntervalNone.
func MaintenanceInterval(raw string) model.MaintenanceInterval {
	return translate(raw, intervalRules, model.IntervalNone)
}

// HardwareType reads the compute-type flag first and falls back to the asset
// type name. A truthy flag means virtual.
func HardwareType(flag, assetTypeName string) model.HardwareType {
	words := tokenize(flag)
	if isTruthy(flag) || matchesAll(words, virtualWords) {
		return model.HardwareVirtual
	}
	if matchesAll(words, []string{"physical|physisch|hardware|bare|baremetal"}) {
		return model.HardwarePhysical
	}
	if matchesAll(tokenize(assetTypeName), virtualWords) {
		return model.HardwareVirtual
	}
	return model.HardwarePhysical
}

func isTruthy(s string) bool {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "true", "1", "yes", "ja", "x":
		return true
	}
	return false
}

func translate[T any](raw string, rules []rule[T], fallback T) T {
	words := tokenize(raw)
	if len(words) == 0 {
		return fallback
	}
	for _, r := range rules {
		if matchesAll(words, r.all) {
			return r.to
		}
	}
	return fallback
}

func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesAll(words, all []string) bool {
	for _, alts := range all {
		if !matchesAny(words, strings.Split(alts, "|")) {
			return false
		}
	}
	return true
}

func matchesAny(words, alts []string) bool {
	for _, w := range words {
		for _, a := range alts {
			if w == a || (len([]rune(a)) >= 4 && strings.HasPrefix(w, a)) {
				return true
			}
		}
	}
	return false
}
