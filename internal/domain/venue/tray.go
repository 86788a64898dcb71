package venue

// ImageTray holds the images picked for one submission, in order.
type ImageTray struct {
	images []Image
}

func NewImageTray() *ImageTray {
	return &ImageTray{}
}

// Add appends img. A fourth image is refused with ErrTooManyImages and the
// tray is left as it was.
func (t *ImageTray) Add(img Image) error {
	if len(t.images) >= MaxImages {
		return ErrTooManyImages
	}
	t.images = append(t.images, img)
	return nil
}

func (t *ImageTray) Remove(i int) {
	if i < 0 || i >= len(t.images) {
		return
	}
	t.images = append(t.images[:i], t.images[i+1:]...)
}

func (t *ImageTray) Len() int { return len(t.images) }

func (t *ImageTray) Images() []Image {
	return append([]Image(nil), t.images...)
}
