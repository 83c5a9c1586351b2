package vvproj

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoAudioItems is returned for a project without a talk track.
var ErrNoAudioItems = errors.New("project has no audio items")

type rawProject struct {
	AppVersion string   `json:"appVersion"`
	Talk       *rawTalk `json:"talk"`
}

type rawTalk struct {
	AudioKeys  []string        `json:"audioKeys"`
	AudioItems json.RawMessage `json:"audioItems"`
}

// Load reads and parses a .vvproj file
func Load(path string) (*Project, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project file: %w", err)
	}
	defer file.Close()

	project, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, err)
	}
	return project, nil
}

// Parse decodes a project document. Items are ordered by talk.audioKeys;
// without audioKeys the order in which items appear in the document is used.
func Parse(r io.Reader) (*Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid project JSON: %w", err)
	}
	if raw.Talk == nil || len(raw.Talk.AudioItems) == 0 {
		return nil, ErrNoAudioItems
	}

	docKeys, rawItems, err := orderedObject(raw.Talk.AudioItems)
	if err != nil {
		return nil, fmt.Errorf("talk.audioItems: %w", err)
	}
	if len(rawItems) == 0 {
		return nil, ErrNoAudioItems
	}

	project := &Project{AppVersion: raw.AppVersion}

	order := raw.Talk.AudioKeys
	if len(order) == 0 {
		order = docKeys
	} else {
		listed := make(map[string]bool, len(order))
		for _, key := range order {
			listed[key] = true
		}
		for _, key := range docKeys {
			if !listed[key] {
				project.Warnings = append(project.Warnings,
					fmt.Sprintf("audio item %s is not listed in audioKeys and was skipped", key))
			}
		}
	}

	seen := make(map[string]bool, len(order))
	for _, key := range order {
		if seen[key] {
			project.Warnings = append(project.Warnings,
				fmt.Sprintf("audio key %s listed more than once", key))
			continue
		}
		seen[key] = true

		value, ok := rawItems[key]
		if !ok {
			project.Warnings = append(project.Warnings,
				fmt.Sprintf("audio key %s not found in audioItems", key))
			continue
		}

		item, err := decodeItem(key, value)
		if err != nil {
			return nil, err
		}
		item.Position = len(project.Items)
		project.Items = append(project.Items, item)
	}

	if len(project.Items) == 0 {
		return nil, ErrNoAudioItems
	}
	return project, nil
}

func decodeItem(key string, value json.RawMessage) (AudioItem, error) {
	var item AudioItem
	if err := json.Unmarshal(value, &item); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && isTimingField(typeErr.Field) {
			return AudioItem{}, fmt.Errorf(
				"audio item %s: field %s is not a number: %w",
				key,
				typeErr.Field,
				ErrMalformedTimingData,
			)
		}
		return AudioItem{}, fmt.Errorf("audio item %s: %w", key, err)
	}
	item.Key = key
	return item, nil
}

func isTimingField(field string) bool {
	return strings.HasSuffix(field, "Length") || strings.HasSuffix(field, "Scale")
}

// orderedObject splits a JSON object into its members while keeping the
// order in which keys were written.
func orderedObject(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var keys []string
	members := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("member %s: %w", key, err)
		}
		if _, dup := members[key]; !dup {
			keys = append(keys, key)
		}
		members[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, members, nil
}
