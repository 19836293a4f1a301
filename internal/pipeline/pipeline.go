// Package pipeline routes one message through the translator stage and then
// the plugin stage. Within a stage components run in ascending priority.
// A failing component is logged and skipped; only bus.ErrFatal escapes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/logging"
	"github.com/dayuer/justrobot-go/internal/registry"
)

// Stats counts what one stage did.
type Stats struct {
	Dispatched int64 `json:"dispatched"`
	Matched    int64 `json:"matched"`
	Errors     int64 `json:"errors"`
}

type counters struct {
	dispatched atomic.Int64
	matched    atomic.Int64
	errors     atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{Dispatched: c.dispatched.Load(), Matched: c.matched.Load(), Errors: c.errors.Load()}
}

// call runs fn, turning a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// TranslatorStage runs every matching translator.
type TranslatorStage struct {
	reg   *registry.Registry[component.Translator]
	log   logging.Logger
	stats counters
}

// NewTranslatorStage creates the translator stage over reg.
func NewTranslatorStage(reg *registry.Registry[component.Translator], log logging.Logger) *TranslatorStage {
	if log == nil {
		log = logging.Nop()
	}
	return &TranslatorStage{reg: reg, log: log}
}

// Run offers msg to each translator. Every allowed match is dealt; none short-circuits.
func (s *TranslatorStage) Run(ctx context.Context, msg *bus.Message) error {
	s.stats.dispatched.Add(1)
	for _, e := range s.reg.Sorted() {
		t := e.Value
		var matched bool
		err := call(func() error {
			matched = t.Match(msg)
			if !matched || !e.Scope.AllowsTranslator(msg) {
				matched = false
				return nil
			}
			return t.Deal(ctx, msg)
		})
		if matched {
			s.stats.matched.Add(1)
		}
		if err != nil {
			if errors.Is(err, bus.ErrFatal) {
				return err
			}
			s.stats.errors.Add(1)
			s.log.Log(logging.Error, logging.En("[Translator] %s failed on message %s: %s", e.Name, msg.ID, logging.FirstLine(err)).
				Zh("[Translator] %s 处理消息 %s 出错: %s", e.Name, msg.ID, logging.FirstLine(err)))
		}
	}
	return nil
}

// Stats returns the stage counters.
func (s *TranslatorStage) Stats() Stats { return s.stats.snapshot() }

// Len returns the number of translators.
func (s *TranslatorStage) Len() int { return s.reg.Len() }

// PluginStage runs the first matching rule of every allowed plugin.
type PluginStage struct {
	reg   *registry.Registry[component.Plugin]
	log   logging.Logger
	stats counters
}

// NewPluginStage creates the plugin stage over reg.
func NewPluginStage(reg *registry.Registry[component.Plugin], log logging.Logger) *PluginStage {
	if log == nil {
		log = logging.Nop()
	}
	return &PluginStage{reg: reg, log: log}
}

// Run offers msg to each plugin in priority order.
func (s *PluginStage) Run(ctx context.Context, msg *bus.Message) error {
	s.stats.dispatched.Add(1)
	for _, e := range s.reg.Sorted() {
		if err := s.runOne(ctx, e, msg); err != nil {
			if errors.Is(err, bus.ErrFatal) {
				return err
			}
			s.stats.errors.Add(1)
			s.log.Log(logging.Error, logging.En("[Plugin] %s failed on message %s: %s", e.Name, msg.ID, logging.FirstLine(err)).
				Zh("[Plugin] %s 处理消息 %s 出错: %s", e.Name, msg.ID, logging.FirstLine(err)))
		}
	}
	return nil
}

func (s *PluginStage) runOne(ctx context.Context, e registry.Entry[component.Plugin], msg *bus.Message) error {
	return call(func() error {
		name, ok := e.Value.Matching(msg)
		if !ok || !e.Scope.AllowsPlugin(msg) {
			return nil
		}
		handler, ok := e.Value.Handler(name)
		if !ok || handler == nil {
			s.log.Log(logging.Warn, logging.En("[Plugin] %s has no handler %q, skipped", e.Name, name).
				Zh("[Plugin] %s 缺少处理函数 %q, 已跳过", e.Name, name))
			return nil
		}
		s.stats.matched.Add(1)
		s.log.Log(logging.Debug, logging.En("[Plugin] %s.%s handles message %s", e.Name, name, msg.ID).
			Zh("[Plugin] %s.%s 处理消息 %s", e.Name, name, msg.ID))
		return handler(ctx, msg)
	})
}

// Stats returns the stage counters.
func (s *PluginStage) Stats() Stats { return s.stats.snapshot() }

// Len returns the number of plugins.
func (s *PluginStage) Len() int { return s.reg.Len() }

// Pipeline is the translator stage followed by the plugin stage.
type Pipeline struct {
	Translators *TranslatorStage
	Plugins     *PluginStage
}

// New builds a pipeline over the two registries.
func New(translators *registry.Registry[component.Translator], plugins *registry.Registry[component.Plugin], log logging.Logger) *Pipeline {
	return &Pipeline{
		Translators: NewTranslatorStage(translators, log),
		Plugins:     NewPluginStage(plugins, log),
	}
}

// Dispatch runs both stages. Empty stages are skipped.
func (p *Pipeline) Dispatch(ctx context.Context, msg *bus.Message) error {
	if p.Translators.Len() > 0 {
		if err := p.Translators.Run(ctx, msg); err != nil {
			return err
		}
	}
	if p.Plugins.Len() > 0 {
		return p.Plugins.Run(ctx, msg)
	}
	return nil
}
