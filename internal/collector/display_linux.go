//go:build linux

package collector

import (
	"context"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// x11Conn opens the display named by DISPLAY.
func (s *System) x11Conn(op string) (*xgb.Conn, error) {
	if _, ok := s.env("DISPLAY"); !ok {
		return nil, errs.New(errs.NotFound, op, "no X11 display")
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errs.Wrap(errs.ApiUnavailable, op, err)
	}
	return conn, nil
}

// Displays lists active RANDR outputs with their current mode.
func (s *System) Displays(ctx context.Context) ([]models.DisplayInfo, error) {
	const op = "collector.displays"
	conn, err := s.x11Conn(op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := randr.Init(conn); err != nil {
		return nil, errs.Wrap(errs.NotSupported, op, err)
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root

	res, err := randr.GetScreenResourcesCurrent(conn, root).Reply()
	if err != nil {
		return nil, errs.Wrap(errs.ApiUnavailable, op, err)
	}
	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primary = reply.Output
	}

	modes := make(map[randr.Mode]randr.ModeInfo, len(res.Modes))
	for _, m := range res.Modes {
		modes[randr.Mode(m.Id)] = m
	}

	var displays []models.DisplayInfo
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil || crtc.Mode == 0 {
			continue
		}
		d := models.DisplayInfo{
			ID:        uint64(output),
			Width:     uint64(crtc.Width),
			Height:    uint64(crtc.Height),
			IsPrimary: primary != 0 && output == primary,
		}
		if m, ok := modes[crtc.Mode]; ok {
			d.RefreshRate = refreshRate(m.DotClock, m.Htotal, m.Vtotal)
		}
		displays = append(displays, d)
	}

	if len(displays) == 0 {
		return nil, errs.New(errs.NotFound, op, "no active outputs")
	}
	ensurePrimary(displays)
	return displays, nil
}

// WindowManager reads _NET_WM_NAME from the EWMH supporting window on X11.
// Under Wayland the compositor is named by the session desktop.
func (s *System) WindowManager(ctx context.Context) (string, error) {
	const op = "collector.window_manager"
	if _, ok := s.env("WAYLAND_DISPLAY"); ok {
		if name, ok := s.env("XDG_SESSION_DESKTOP"); ok {
			return name, nil
		}
		if _, ok := s.env("DISPLAY"); !ok {
			return "", errs.New(errs.NotFound, op, "wayland compositor did not identify itself")
		}
	}

	conn, err := s.x11Conn(op)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	check, err := internAtom(conn, "_NET_SUPPORTING_WM_CHECK")
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, op, err)
	}
	reply, err := xproto.GetProperty(conn, false, root, check, xproto.AtomWindow, 0, 1).Reply()
	if err != nil || reply == nil || len(reply.Value) < 4 {
		return "", errs.New(errs.NotFound, op, "no EWMH-compliant window manager")
	}
	wmWindow := xproto.Window(xgb.Get32(reply.Value))

	nameAtom, err := internAtom(conn, "_NET_WM_NAME")
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, op, err)
	}
	utf8Atom, err := internAtom(conn, "UTF8_STRING")
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, op, err)
	}
	nameReply, err := xproto.GetProperty(conn, false, wmWindow, nameAtom, utf8Atom, 0, 1024).Reply()
	if err != nil || nameReply == nil {
		return "", errs.New(errs.NotFound, op, "window manager has no _NET_WM_NAME")
	}
	name := strings.TrimRight(string(nameReply.Value), "\x00")
	if name == "" {
		return "", errs.New(errs.NotFound, op, "window manager name is empty")
	}
	s.logger.Debug("Detected window manager", zap.String("name", name))
	return name, nil
}

// internAtom resolves an existing X11 atom by name.
func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
