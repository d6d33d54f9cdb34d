// Package file loads survey definitions and resource catalogs from YAML or JSON files.
//
// Documents are parsed with yaml.v3 (a JSON document is valid YAML) into generic maps
// and then decoded with mapstructure, which rejects unknown keys and parses question
// kinds through their text form.
package file
