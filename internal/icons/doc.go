// Package icons loads the Material Design Icons metadata catalog and
// exposes it as suggestion choices for icon selector fields.
package icons
