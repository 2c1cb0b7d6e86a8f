package display

// Cursor steps through the files of a folder.
type Cursor struct {
	paths []string
	index int
}

func NewCursor(paths []string) *Cursor {
	return &Cursor{paths: paths}
}

func (c *Cursor) Len() int   { return len(c.paths) }
func (c *Cursor) Index() int { return c.index }

// Current returns the selected path, or "" for an empty folder.
func (c *Cursor) Current() string {
	if len(c.paths) == 0 {
		return ""
	}
	return c.paths[c.index]
}

// Seek selects file i, clamped to the folder.
func (c *Cursor) Seek(i int) string {
	if len(c.paths) == 0 {
		return ""
	}
	switch {
	case i < 0:
		i = 0
	case i >= len(c.paths):
		i = len(c.paths) - 1
	}
	c.index = i
	return c.paths[i]
}

func (c *Cursor) Back() string    { return c.Seek(c.index - 1) }
func (c *Cursor) Forward() string { return c.Seek(c.index + 1) }
