package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
)

// texelSize returns the bytes per texel of a storage format.
func texelSize(format wgpu.TextureFormat) (uint32, error) {
	switch format {
	case wgpu.TextureFormatRGBA32Float:
		return 16, nil
	case wgpu.TextureFormatRGBA16Float:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

func (r *renderer) CreateStorageTarget(label string, width, height uint32, format wgpu.TextureFormat, data []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	texel, err := texelSize(format)
	if err != nil {
		return nil, nil, err
	}
	if want := int(width * height * texel); len(data) > 0 && len(data) != want {
		return nil, nil, fmt.Errorf("storage target %s: got %d bytes, want %d", label, len(data), want)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	size := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	texture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(data) > 0 {
		err = r.queue.WriteTexture(
			&wgpu.ImageCopyTexture{Texture: texture, Aspect: wgpu.TextureAspectAll},
			data,
			&wgpu.TextureDataLayout{BytesPerRow: width * texel, RowsPerImage: height},
			&size,
		)
		if err != nil {
			texture.Release()
			return nil, nil, fmt.Errorf("storage target %s: %w", label, err)
		}
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, err
	}
	return texture, view, nil
}

func (r *renderer) InitMesh(provider bind_group_provider.BindGroupProvider, vertexData []byte, count uint32) error {
	if len(vertexData) == 0 || count == 0 {
		return fmt.Errorf("%s: empty mesh", provider.Label())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " vertices",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	if err := r.queue.WriteBuffer(buf, 0, vertexData); err != nil {
		buf.Release()
		return err
	}
	provider.SetVertices(buf, count)
	return nil
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout wgpu.BindGroupLayoutDescriptor) error {
	if len(layout.Entries) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := bindGroupEntries(provider, layout, r.uniformBuffer)
	if err != nil {
		return err
	}

	bgl := provider.Layout()
	if bgl == nil {
		bgl, err = r.device.CreateBindGroupLayout(&layout)
		if err != nil {
			return err
		}
		provider.SetLayout(bgl)
	}
	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  bgl,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

// uniformBuffer creates a uniform buffer of size bytes. Callers hold r.mu.
func (r *renderer) uniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	return r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
}

// bindGroupEntries resolves each layout entry to an attached view or a uniform buffer, creating
// buffers the provider does not hold yet with newBuffer.
func bindGroupEntries(
	provider bind_group_provider.BindGroupProvider,
	layout wgpu.BindGroupLayoutDescriptor,
	newBuffer func(label string, size uint64) (*wgpu.Buffer, error),
) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(layout.Entries))
	for _, e := range layout.Entries {
		binding := int(e.Binding)
		switch {
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined, e.StorageTexture.Format != wgpu.TextureFormatUndefined:
			view := provider.TextureView(binding)
			if view == nil {
				return nil, fmt.Errorf("%s: binding %d has no texture view", provider.Label(), binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, TextureView: view})
		case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
			buf := provider.Buffer(binding)
			if buf == nil {
				var err error
				buf, err = newBuffer(fmt.Sprintf("%s binding %d", provider.Label(), binding), e.Buffer.MinBindingSize)
				if err != nil {
					return nil, err
				}
				provider.SetBuffer(binding, buf)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Size: wgpu.WholeSize})
		default:
			return nil, fmt.Errorf("%s: binding %d is neither a texture nor a uniform buffer", provider.Label(), binding)
		}
	}
	return entries, nil
}

func (r *renderer) WriteBuffers(uploads ...bind_group_provider.Upload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range uploads {
		if buf := u.Provider.Buffer(u.Binding); buf != nil {
			r.queue.WriteBuffer(buf, 0, u.Data)
		}
	}
}
