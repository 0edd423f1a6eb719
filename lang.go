package dronestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// defaultMessages are the built-in English messages.
var defaultMessages = map[string]string{
	"UI.Button.ViewItems": "View Items",
	"UI.Button.DropItems": "Drop Items",
	"UI.Button.Lock":      "Lock",
	"UI.Button.Unlock":    "Unlock",
	"UI.Title":            "Drone Storage",

	"Lock.Locked":   "Drone storage locked.",
	"Lock.Unlocked": "Drone storage unlocked.",

	"Deploy.Success": "Deployed storage with {0} slots.",

	"Error.NoPermission": "You don't have permission to do that.",
	"Error.NoSession":    "You are not controlling a drone with storage.",
	"Error.NoLock":       "This drone storage has no lock.",

	"Deploy.Error.NoDrone":                "No drone found.",
	"Deploy.Error.BuildingBlocked":        "Error: Cannot do that while building blocked.",
	"Deploy.Error.AlreadyHasStorage":      "Error: That drone already has storage.",
	"Deploy.Error.IncompatibleAttachment": "Error: That drone has an incompatible attachment.",
	"Deploy.Error.NoCapacity":             "Error: You are not allowed any drone storage.",
	"Deploy.Error.NoCostItem":             "Error: You need a {0} to do that.",
	"Deploy.Error.Generic":                "An unknown error occurred.",
}

// Lang holds localized message templates per locale. Templates use {0}, {1}
// and so on for positional arguments.
type Lang struct {
	mu       sync.RWMutex
	messages map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewLang creates a Lang holding the built-in English messages.
func NewLang() *Lang {
	l := &Lang{messages: make(map[language.Tag]map[string]string)}
	l.Register(language.English, defaultMessages)
	return l
}

// Register adds or overrides messages for tag.
func (l *Lang) Register(tag language.Tag, messages map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	table, ok := l.messages[tag]
	if !ok {
		table = make(map[string]string, len(messages))
		l.messages[tag] = table
		l.tags = append(l.tags, tag)
		l.matcher = language.NewMatcher(l.tags)
	}
	for k, v := range messages {
		table[k] = v
	}
}

// LoadDir registers every <tag>.yaml file in dir. Each file is a flat map of
// message key to template.
func (l *Lang) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".yaml" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return fmt.Errorf("dronestorage: lang file %s: %w", name, err)
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		var messages map[string]string
		if err := yaml.Unmarshal(b, &messages); err != nil {
			return fmt.Errorf("dronestorage: lang file %s: %w", name, err)
		}
		l.Register(tag, messages)
	}
	return nil
}

// Get returns the message for key in the locale closest to tag, falling back
// to English and then to key itself.
func (l *Lang) Get(tag language.Tag, key string, args ...any) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, i, _ := l.matcher.Match(tag)
	msg, ok := l.messages[l.tags[i]][key]
	if !ok {
		if msg, ok = l.messages[language.English][key]; !ok {
			msg = key
		}
	}
	return format(msg, args...)
}

// format replaces {i} in msg with args[i].
func format(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", fmt.Sprint(a))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
