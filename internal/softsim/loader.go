package softsim

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// image is an in-memory program image: the loader's file format is out of
// scope (spec.md §1), so images are registered directly as integer slices
// rather than parsed from disk.
type image struct {
	loadAddress int
	data        []int
}

func (i *image) LoadAddress() int {
	return i.loadAddress
}

func (i *image) Size() int {
	return len(i.data)
}

func (i *image) DataAt(addr int) (int, error) {
	idx := addr - i.loadAddress
	if idx < 0 || idx >= len(i.data) {
		return 0, simcontract.ErrOutOfMemory
	}
	return i.data[idx], nil
}

// Loader is a name-indexed registry of in-memory program images.
type Loader struct {
	images map[string]*image
}

// NewLoader builds an empty loader.
func NewLoader() *Loader {
	return &Loader{images: make(map[string]*image)}
}

// Register makes data available for later Open(name) calls, loaded starting
// at virtual address 0.
func (l *Loader) Register(name string, data []int) {
	l.images[name] = &image{data: data}
}

func (l *Loader) Open(name string) (simcontract.LoaderHandle, error) {
	img, ok := l.images[name]
	if !ok {
		return nil, simcontract.ErrProgramNotFound
	}
	return img, nil
}
