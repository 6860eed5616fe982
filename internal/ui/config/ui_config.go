package ui_config

import "github.com/juju/errors"

// Entry code length. The reference password and the input buffer are
// both exactly this long; shorter input compares as not-equal.
const PasswordLen = 6

type Config struct { //nolint:maligned
	Password string `hcl:"password"`

	UnlockHoldMs int `hcl:"unlock_hold_ms"`
	DenyHoldMs   int `hcl:"deny_hold_ms"`

	RenderMs      int `hcl:"render_ms"`
	RenderDelayMs int `hcl:"render_delay_ms"`

	MsgBoot   string `hcl:"msg_boot"`
	MsgReady  string `hcl:"msg_ready"`
	MsgPrompt string `hcl:"msg_prompt"`
}

// Digits returns the reference password as raw digit values 0..9.
func (c *Config) Digits() ([PasswordLen]byte, error) {
	var ds [PasswordLen]byte
	if n := len(c.Password); n != PasswordLen {
		return ds, errors.NotValidf("ui.password length=%d want=%d", n, PasswordLen)
	}
	for i := 0; i < PasswordLen; i++ {
		ch := c.Password[i]
		if ch < '0' || ch > '9' {
			return ds, errors.NotValidf("ui.password char=%q must be a digit", ch)
		}
		ds[i] = ch - '0'
	}
	return ds, nil
}
