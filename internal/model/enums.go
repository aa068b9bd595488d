package model

type HardwareType string

const (
	HardwarePhysical HardwareType = "PHYSICAL"
	HardwareVirtual  HardwareType = "VIRTUAL"
)

type OperatingSystem string

const (
	OSWindowsServer2008 OperatingSystem = "WINDOWS_SERVER_2008"
	OSWindowsServer2012 OperatingSystem = "WINDOWS_SERVER_2012"
	OSWindowsServer2016 OperatingSystem = "WINDOWS_SERVER_2016"
	OSWindowsServer2019 OperatingSystem = "WINDOWS_SERVER_2019"
	OSWindowsServer2022 OperatingSystem = "WINDOWS_SERVER_2022"
	OSWindowsServer2025 OperatingSystem = "WINDOWS_SERVER_2025"
	OSWindows10         OperatingSystem = "WINDOWS_10"
	OSWindows11         OperatingSystem = "WINDOWS_11"
	OSDebian10          OperatingSystem = "DEBIAN_10"
	OSDebian11          OperatingSystem = "DEBIAN_11"
	OSDebian12          OperatingSystem = "DEBIAN_12"
	OSUbuntu18          OperatingSystem = "UBUNTU_18"
	OSUbuntu20          OperatingSystem = "UBUNTU_20"
	OSUbuntu22          OperatingSystem = "UBUNTU_22"
	OSUbuntu24          OperatingSystem = "UBUNTU_24"
	OSRHEL              OperatingSystem = "RHEL"
	OSCentOS            OperatingSystem = "CENTOS"
	OSSUSE              OperatingSystem = "SUSE"
	OSESXi              OperatingSystem = "ESXI"
	OSProxmox           OperatingSystem = "PROXMOX"
	OSMacOS             OperatingSystem = "MACOS"
	OSOther             OperatingSystem = "OTHER_OS"
)

// OperatingSystems lists every member of the closed OS enumeration.
var OperatingSystems = []OperatingSystem{
	OSWindowsServer2008, OSWindowsServer2012, OSWindowsServer2016, OSWindowsServer2019,
	OSWindowsServer2022, OSWindowsServer2025, OSWindows10, OSWindows11,
	OSDebian10, OSDebian11, OSDebian12, OSUbuntu18, OSUbuntu20, OSUbuntu22, OSUbuntu24,
	OSRHEL, OSCentOS, OSSUSE, OSESXi, OSProxmox, OSMacOS, OSOther,
}

type ServerApplicationType string

const (
	RoleExchange    ServerApplicationType = "EXCHANGE"
	RoleSQL         ServerApplicationType = "SQL"
	RoleFile        ServerApplicationType = "FILE"
	RoleDomain      ServerApplicationType = "DOMAIN"
	RoleBackup      ServerApplicationType = "BACKUP"
	RoleRDS         ServerApplicationType = "RDS"
	RoleApplication ServerApplicationType = "APPLICATION"
	RoleOther       ServerApplicationType = "OTHER"
	RoleNone        ServerApplicationType = "NONE"
)

var ServerApplicationTypes = []ServerApplicationType{
	RoleExchange, RoleSQL, RoleFile, RoleDomain, RoleBackup, RoleRDS, RoleApplication, RoleOther, RoleNone,
}

type MaintenanceInterval string

const (
	IntervalMonthly    MaintenanceInterval = "MONTHLY"
	IntervalQuarterly  MaintenanceInterval = "QUARTERLY"
	IntervalSemiAnnual MaintenanceInterval = "SEMI_ANNUAL"
	IntervalAnnual     MaintenanceInterval = "ANNUAL"
	IntervalNone       MaintenanceInterval = "NONE"
)
