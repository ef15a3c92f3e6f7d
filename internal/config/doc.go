// Package config defines the maintenance settings shared by the node-patch
// binaries and provides helpers to load, validate and save them in YAML format.
//
// Every field has a default, so a missing configuration file means the
// built-in RHEL/docker-ce profile.
package config
