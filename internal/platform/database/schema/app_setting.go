// Copyright (c) 2026 Exvault. All rights reserved.

package schema

// SettingTable represents the 'app.setting' table
type SettingTable struct {
	Table     string
	Key       string
	Value     string
	UpdatedAt string
}

var Setting = SettingTable{
	Table:     "app.setting",
	Key:       "key",
	Value:     "value",
	UpdatedAt: "updatedat",
}
