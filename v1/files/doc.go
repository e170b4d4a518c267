// Package files lists files below a directory with shell-style exclusions.
//
// It works on an afero.Fs, so callers pass afero.NewOsFs() in production and
// afero.NewMemMapFs() in tests.
package files
