// Package fake provides deterministic in-memory ImageClient, VLMClient,
// ThreeDClient, and AssemblyHost test doubles used by the pipeline's
// end-to-end scenario tests.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/holodeck-scenegen/scenegen/scene"
)

// ImageClient returns deterministic, content-free image payloads; set
// FailNext to make the next call return an error with the given kind.
type ImageClient struct {
	mu        sync.Mutex
	FailNext  clients.FailureKind
	CallCount int
}

func (c *ImageClient) nextFailure() error {
	if c.FailNext == "" {
		return nil
	}
	kind := c.FailNext
	c.FailNext = ""
	return &fakeError{kind: kind}
}

func (c *ImageClient) GenerateSceneReference(ctx context.Context, sessionID, text, style string) (clients.SceneReference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount++
	if err := c.nextFailure(); err != nil {
		return clients.SceneReference{}, err
	}
	return clients.SceneReference{
		ImageBytes: []byte(fmt.Sprintf("fake-ref:%s:%s", sessionID, style)),
		PromptUsed: text,
		ElapsedS:   0.01,
	}, nil
}

func (c *ImageClient) GenerateObjectCards(ctx context.Context, sessionID string, objects []scene.Object, sceneRefRef string) ([]clients.ObjectCard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount++
	if err := c.nextFailure(); err != nil {
		return nil, err
	}
	cards := make([]clients.ObjectCard, len(objects))
	for i, o := range objects {
		cards[i] = clients.ObjectCard{
			ObjectID:   o.ObjectID,
			CardBytes:  []byte(fmt.Sprintf("fake-card:%s", o.ObjectID)),
			PromptUsed: o.VisualDescription,
			ElapsedS:   0.01,
		}
	}
	return cards, nil
}

// VLMClient returns a fixed object/constraint set supplied at construction,
// so test scenarios can script exactly what "extraction" produces.
type VLMClient struct {
	Objects     []scene.Object
	SceneStyle  string
	Constraints []clients.ExtractedConstraint
	FailNext    clients.FailureKind
}

func (c *VLMClient) ExtractObjects(ctx context.Context, sessionID, text, sceneRefRef string) (clients.ExtractedObjects, error) {
	if c.FailNext != "" {
		kind := c.FailNext
		c.FailNext = ""
		return clients.ExtractedObjects{}, &fakeError{kind: kind}
	}
	return clients.ExtractedObjects{SceneStyle: c.SceneStyle, Objects: c.Objects}, nil
}

func (c *VLMClient) ExtractConstraints(ctx context.Context, text string, objects []scene.Object, sceneRefRef string) ([]clients.ExtractedConstraint, error) {
	if c.FailNext != "" {
		kind := c.FailNext
		c.FailNext = ""
		return nil, &fakeError{kind: kind}
	}
	return c.Constraints, nil
}

// ThreeDClient returns a deterministic checksum-bearing mesh per object.
// FailNext fails only the next call, then clears; AlwaysFail fails every
// call, for exercising retry exhaustion.
type ThreeDClient struct {
	FailNext   clients.FailureKind
	AlwaysFail clients.FailureKind
}

func (c *ThreeDClient) GenerateFromCard(ctx context.Context, objectID, cardRef string, sizeHint geometry.Vector3) (clients.Mesh, error) {
	if c.AlwaysFail != "" {
		return clients.Mesh{}, &fakeError{kind: c.AlwaysFail}
	}
	if c.FailNext != "" {
		kind := c.FailNext
		c.FailNext = ""
		return clients.Mesh{}, &fakeError{kind: kind}
	}
	return clients.Mesh{
		MeshFile: objectID + ".glb",
		Format:   "glb",
		Bytes:    []byte("fake-mesh:" + objectID),
		Checksum: "sha256:" + objectID,
	}, nil
}

func (c *ThreeDClient) GenerateFromDescription(ctx context.Context, objectID, text, style string) (clients.Mesh, error) {
	return c.GenerateFromCard(ctx, objectID, "", geometry.Vector3{})
}

// AssetCache serves a fixed set of cached meshes keyed by description
// substring, so tests can script cache hits/misses deterministically.
type AssetCache struct {
	// Entries maps a description substring to the mesh served when a
	// lookup's description contains it.
	Entries map[string]clients.Mesh
}

func (c *AssetCache) Lookup(ctx context.Context, description string, threshold float64) (clients.Mesh, bool, error) {
	for substr, mesh := range c.Entries {
		if strings.Contains(strings.ToLower(description), strings.ToLower(substr)) {
			return mesh, true, nil
		}
	}
	return clients.Mesh{}, false, nil
}

// AssemblyHost records every bundle path it was asked to submit.
type AssemblyHost struct {
	mu      sync.Mutex
	Bundles []string
}

func (h *AssemblyHost) SubmitAssembly(ctx context.Context, sessionID, bundlePath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Bundles = append(h.Bundles, bundlePath)
	return nil
}

type fakeError struct {
	kind clients.FailureKind
}

func (e *fakeError) Error() string { return "fake client failure: " + string(e.kind) }

// Kind reports the scripted failure kind, for callers that classify errors
// by type assertion (mirroring how real client SDKs surface error codes).
func (e *fakeError) Kind() clients.FailureKind { return e.kind }
