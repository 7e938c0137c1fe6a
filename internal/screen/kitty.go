package screen

import "github.com/google/uuid"

// GraphicsAction identifies a kitty graphics APC command's action (the
// 'a' control key).
type GraphicsAction uint8

const (
	GraphicsQuery GraphicsAction = iota
	GraphicsTransmit
	GraphicsDisplay
	GraphicsTransmitDisplay
	GraphicsDelete
)

// GraphicsCommand is a parsed kitty graphics APC `G` payload: control
// keys plus the (possibly chunked) raw payload bytes.
type GraphicsCommand struct {
	Action   GraphicsAction
	ImageID  uint64
	PlacedID uint64
	Format   int // 'f' control key: 24/32/100(png)
	Width    int
	Height   int
	More     bool // 'm=1': more chunks follow
	Payload  []byte
}

// LoadingImage accumulates chunks of a multi-part transmission until
// the final chunk (More == false) completes it.
type LoadingImage struct {
	Key     string
	Cmd     GraphicsCommand
	Payload []byte
}

// Image is a fully received, validated kitty-graphics image. Pixel
// decoding/storage format is a bookkeeping concern only — rendering it
// is out of scope.
type Image struct {
	ID     uint64
	Width  int
	Height int
	Format int
	Data   []byte
}

// Placement anchors an Image onto the grid at a cell position.
type Placement struct {
	ID      uint64
	ImageID uint64
	Col     int
	Row     int
}

// BeginLoadingImage starts (or continues) accumulating chunks for a
// multi-part transmission. A new transmission is keyed by a fresh
// uuid; cmd's image id is only applied by FinishLoadingImage.
func (s *Screen) BeginLoadingImage(cmd GraphicsCommand) *LoadingImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingLoad == nil {
		key := uuid.NewString()
		s.pendingLoad = &LoadingImage{Key: key, Cmd: cmd}
	}
	s.pendingLoad.Payload = append(s.pendingLoad.Payload, cmd.Payload...)
	return s.pendingLoad
}

// FinishLoadingImage completes the pending transmission (if any),
// storing it as an Image keyed by cmd.ImageID and clearing the pending
// slot.
func (s *Screen) FinishLoadingImage(cmd GraphicsCommand) *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload []byte
	if s.pendingLoad != nil {
		payload = append(s.pendingLoad.Payload, cmd.Payload...)
		s.pendingLoad = nil
	} else {
		payload = cmd.Payload
	}
	img := &Image{ID: cmd.ImageID, Width: cmd.Width, Height: cmd.Height, Format: cmd.Format, Data: payload}
	s.images[img.ID] = img
	return img
}

// Image looks up a stored image by id.
func (s *Screen) Image(id uint64) (*Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	return img, ok
}

// DeleteImage removes a stored image and any placements referencing
// it.
func (s *Screen) DeleteImage(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, id)
	kept := s.placements[:0]
	for _, p := range s.placements {
		if p.ImageID != id {
			kept = append(kept, p)
		}
	}
	s.placements = kept
}

// AddPlacement records a Placement referencing an already-stored
// Image, and marks the anchor cell with the placement id.
func (s *Screen) AddPlacement(imageID uint64, placementID uint64, col, row int) *Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Placement{ID: placementID, ImageID: imageID, Col: col, Row: row}
	s.placements = append(s.placements, p)
	if r := s.row(row); r != nil && col >= 0 && col < len(r.Cells) {
		r.Cells[col].ImagePlac = placementID
	}
	return p
}

// Placements returns the currently live placements.
func (s *Screen) Placements() []*Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Placement, len(s.placements))
	copy(out, s.placements)
	return out
}

// PushKittyKeyboardFlags pushes a new entry onto the keyboard
// progressive-enhancement stack.
func (s *Screen) PushKittyKeyboardFlags(flags KittyKeyboardFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kittyStack = append(s.kittyStack, flags)
}

// PopKittyKeyboardFlags pops n entries (clamped to the stack depth).
func (s *Screen) PopKittyKeyboardFlags(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.kittyStack) {
		n = len(s.kittyStack)
	}
	s.kittyStack = s.kittyStack[:len(s.kittyStack)-n]
}

// SetKittyKeyboardFlags overwrites the top of the stack (pushing a
// frame if the stack is empty).
func (s *Screen) SetKittyKeyboardFlags(flags KittyKeyboardFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.kittyStack) == 0 {
		s.kittyStack = append(s.kittyStack, flags)
		return
	}
	s.kittyStack[len(s.kittyStack)-1] = flags
}

// QueryKittyKeyboardFlags returns the top of the stack, or 0 if empty.
func (s *Screen) QueryKittyKeyboardFlags() KittyKeyboardFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.kittyStack) == 0 {
		return 0
	}
	return s.kittyStack[len(s.kittyStack)-1]
}
