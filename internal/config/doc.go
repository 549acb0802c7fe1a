// Package config loads runnerdb settings from TOML.
//
// Load starts from Default, overlays the first config file it finds, expands
// "~" in paths, applies RUNNERDB_DATA_DIR, and validates similarity weights
// and logging options. Unknown keys are rejected so a typo in a weight name
// fails loudly instead of silently keeping the default.
package config
