// Package common holds helpers shared by several services.
//
// It detects facts about the host (name, kernel, boot time) that every
// maintenance pass logs before it touches anything.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
