package browser

import (
	"fmt"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// readListeners resolves the elements collected by the last dump and asks
// the debugger for the event listeners registered on each. The result maps
// dump element positions to listener types. Elements whose listeners could
// not be read are absent.
func readListeners(page *rod.Page, logger *zap.Logger) (map[int]map[string]bool, error) {
	defer func() {
		if _, err := page.Eval(`() => { delete window.__domsnapNodes }`); err != nil {
			logger.Debug("failed to release dumped elements", zap.Error(err))
		}
	}()

	list, err := page.Evaluate(rod.Eval(`() => window.__domsnapNodes`).ByObject())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dumped elements: %w", err)
	}
	if list.ObjectID == "" {
		return nil, nil
	}

	props, err := proto.RuntimeGetProperties{ObjectID: list.ObjectID, OwnProperties: true}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("failed to list dumped elements: %w", err)
	}

	out := make(map[int]map[string]bool, len(props.Result))
	for _, p := range props.Result {
		index, err := strconv.Atoi(p.Name)
		if err != nil || p.Value == nil || p.Value.ObjectID == "" {
			continue
		}

		res, err := proto.DOMDebuggerGetEventListeners{ObjectID: p.Value.ObjectID}.Call(page)
		if err != nil {
			logger.Debug("failed to read event listeners", zap.Int("element", index), zap.Error(err))
			continue
		}

		types := make(map[string]bool, len(res.Listeners))
		for _, l := range res.Listeners {
			types[l.Type] = true
		}
		out[index] = types
	}
	return out, nil
}

// attachListeners copies listener types onto the dumped elements by their
// dump position, across shadow roots and frame documents.
func attachListeners(n *remoteNode, byIndex map[int]map[string]bool) {
	if n == nil {
		return
	}
	if n.raw.Index != nil {
		if types, ok := byIndex[*n.raw.Index]; ok {
			n.listeners = types
			n.inspected = true
		}
	}

	attachListeners(n.shadow, byIndex)
	attachListeners(n.content, byIndex)
	for _, c := range n.children {
		attachListeners(c, byIndex)
	}
}
