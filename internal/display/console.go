package display

import "flapd/pkg/logx"

// Console is a development driver that renders to the log.
// It only logs flap transitions, so an idle display stays silent.
type Console struct {
	log logx.Logger

	cur      string
	status   [2]string
	disabled bool
}

func NewConsole(log logx.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) ShowString(text string, force bool) {
	if text == c.cur && !force {
		return
	}
	c.cur = text
	c.disabled = false
	c.log.Info("show", logx.String("text", text))
}

func (c *Console) DisableAll() {
	c.disabled = true
	c.log.Info("actuators disabled")
}

func (c *Console) ResetAll() {
	c.log.Info("reset all modules")
}

func (c *Console) SetMessage(line int, text string) {
	if line < 0 || line >= len(c.status) {
		return
	}
	if c.status[line] == text {
		return
	}
	c.status[line] = text
	c.log.Debug("status", logx.Int("line", line), logx.String("text", text))
}
