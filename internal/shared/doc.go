// Package shared holds helpers used by more than one package of the dashboard.
// The testutil subpackage carries the slog capture handler and the small
// avocado dataset the loader, service, handler and application tests share.
package shared
