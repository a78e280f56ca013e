// Package session drives one analysis session: select an image, upload it
// and hold the outcome for rendering.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/apiclient"
	"github.com/example/deepfake-check/internal/dataurl"
	"github.com/example/deepfake-check/internal/detection"
)

// Uploader submits a base64 image and returns the analysis payload.
type Uploader interface {
	Upload(ctx context.Context, image string) (*detection.Response, error)
}

// Controller owns the session state. It is safe for concurrent use.
//
// Every selection and every upload takes a new generation. A response is
// applied only if its generation is still current, so when uploads overlap
// the most recently started one wins and stale results are dropped.
type Controller struct {
	uploader Uploader
	logger   *zap.Logger
	onChange func(State)

	mu         sync.Mutex
	state      State
	generation uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange registers fn to observe every transition. fn is called
// outside the controller lock, in transition order for a single caller.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController returns a controller in the Idle state.
func NewController(uploader Uploader, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		uploader: uploader,
		logger:   logger.Named("session"),
		state:    Idle{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelectFile decodes path into a data URL and makes it the current image,
// clearing any previous result or error. An empty path is a no-op. On a read
// error the state is left untouched.
func (c *Controller) SelectFile(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	image, err := dataurl.FromFile(ctx, path)
	if err != nil {
		c.logger.Warn("failed to read selected file", zap.String("path", path), zap.Error(err))
		return err
	}
	c.selectImage(image)
	return nil
}

// SelectBytes is SelectFile for content already in memory. Empty data is a
// no-op.
func (c *Controller) SelectBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	c.selectImage(dataurl.Encode(data))
}

func (c *Controller) selectImage(image string) {
	c.mu.Lock()
	c.generation++
	c.state = Ready{Image: image}
	next := c.state
	c.mu.Unlock()

	c.logger.Debug("image selected", zap.String("media_type", dataurl.MediaType(image)))
	c.notify(next)
}

// Upload submits the current image and returns the state it settled in. With
// no image selected it does nothing and returns the current state. If a newer
// selection or upload supersedes this one before it settles, its outcome is
// discarded and the then-current state is returned.
func (c *Controller) Upload(ctx context.Context) State {
	c.mu.Lock()
	image := ImageOf(c.state)
	if image == "" {
		current := c.state
		c.mu.Unlock()
		return current
	}
	c.generation++
	token := c.generation
	c.state = Loading{Image: image}
	loading := c.state
	c.mu.Unlock()
	c.notify(loading)

	result, err := c.uploader.Upload(ctx, dataurl.Payload(image))

	var settled State
	if err != nil {
		c.logger.Error("upload failed", zap.Error(err))
		settled = Failed{Image: image, Message: apiclient.Message(err)}
	} else {
		settled = Succeeded{Image: image, Result: result}
	}

	c.mu.Lock()
	if token != c.generation {
		current := c.state
		c.mu.Unlock()
		c.logger.Info("discarding stale upload response",
			zap.Uint64("token", token),
			zap.String("outcome", settled.Phase().String()),
		)
		return current
	}
	c.state = settled
	c.mu.Unlock()
	c.notify(settled)
	return settled
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
