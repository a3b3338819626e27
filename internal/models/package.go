package models

import "time"

const (
	PackageTypeFile = "file"
	PackageTypeLink = "link"
)

// Package is a registry entry. Names are unique per Type, so a file package
// and a link package may share a name.
type Package struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Apk        string    `json:"apk,omitempty"`
	ApkLink    string    `json:"apkLink,omitempty"`
	Icon       string    `json:"icon"`
	Size       int64     `json:"size,omitempty"`
	SHA256     string    `json:"sha256,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}
