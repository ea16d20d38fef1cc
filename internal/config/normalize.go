package config

import "strings"

// normalize expands and cleans path fields and canonicalizes enums.
func (c *Config) normalize() error {
	var err error
	if c.Paths.RawRoot, err = expandPath(strings.TrimSpace(c.Paths.RawRoot)); err != nil {
		return err
	}
	if c.Paths.DataRoot, err = expandPath(strings.TrimSpace(c.Paths.DataRoot)); err != nil {
		return err
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}
