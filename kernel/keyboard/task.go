package keyboard

import (
	"nucleus/kernel"
	"nucleus/kernel/klog"
)

// KeyHandler receives every decoded key. It runs on the executor, never in
// interrupt context.
type KeyHandler interface {
	HandleKey(key DecodedKey)
}

// KeyHandlerFunc adapts a function to the KeyHandler interface.
type KeyHandlerFunc func(key DecodedKey)

func (f KeyHandlerFunc) HandleKey(key DecodedKey) { f(key) }

// DecodeTask consumes a bridge's scan codes, decodes them and forwards keys
// to a handler. It never completes.
type DecodeTask struct {
	bridge  *Bridge
	stream  *ScancodeStream
	decoder *Decoder
	handler KeyHandler
	log     *klog.Logger
}

// NewDecodeTask returns a task draining b. The bridge's stream is created
// on the first poll. A nil b selects the process-wide bridge.
func NewDecodeTask(b *Bridge, handler KeyHandler, log *klog.Logger) *DecodeTask {
	if b == nil {
		b = Default()
	}
	return &DecodeTask{bridge: b, decoder: NewDecoder(), handler: handler, log: log}
}

func (t *DecodeTask) Poll(ctx *kernel.Context) kernel.Status {
	if t.stream == nil {
		t.stream = t.bridge.NewStream()
	}
	for {
		code, ok := t.stream.PollNext(ctx.Waker())
		if !ok {
			return kernel.Pending
		}
		key, ok := t.decoder.AddByte(code)
		if !ok {
			continue
		}
		t.logger().Infof("KEYBOARD %s", key)
		if t.handler != nil {
			t.handler.HandleKey(key)
		}
	}
}

func (t *DecodeTask) logger() *klog.Logger {
	if t.log != nil {
		return t.log
	}
	return klog.Default()
}
