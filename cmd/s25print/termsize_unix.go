//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang/glog"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"
)

// TermSize is the terminal size in character cells and, when the terminal
// reports it, in pixels.
type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

var kittySizeReply = regexp.MustCompile(`\[4;(\d+);(\d+)t`)

func GetTermSize() (TermSize, error) {
	f, err := os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0666)
	if err != nil {
		return stdinTermSize()
	}
	defer f.Close()

	// https://sw.kovidgoyal.net/kitty/graphics-protocol/#getting-the-window-size
	sz, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return stdinTermSize()
	}
	ts := TermSize{WSRow: uint(sz.Row), WSCol: uint(sz.Col), WSXPixel: uint(sz.Xpixel), WSYPixel: uint(sz.Ypixel)}
	if ts.WSXPixel == 0 && ts.WSYPixel == 0 && os.Getenv("TERM") == "xterm-kitty" {
		if w, h, err := kittyPixelSize(f); err == nil {
			ts.WSXPixel, ts.WSYPixel = w, h
		} else {
			glog.V(1).Infof("asking kitty for the window size: %v", err)
		}
	}
	return ts, nil
}

// kittyPixelSize asks the terminal for its size in pixels with CSI 14 t and
// parses the <ESC>[4;<height>;<width>t reply.
func kittyPixelSize(tty *os.File) (width, height uint, err error) {
	state, err := terminal.MakeRaw(int(tty.Fd()))
	if err != nil {
		return 0, 0, err
	}
	defer terminal.Restore(int(tty.Fd()), state)

	fmt.Printf("\033[14t")
	// TODO: time out on terminals that never reply.
	reply, err := bufio.NewReader(os.Stdin).ReadString('t')
	if err != nil {
		return 0, 0, err
	}
	m := kittySizeReply.FindStringSubmatch(reply)
	if len(m) != 3 {
		return 0, 0, fmt.Errorf("unexpected reply %q", reply)
	}
	h, errH := strconv.Atoi(m[1])
	w, errW := strconv.Atoi(m[2])
	if errH != nil || errW != nil {
		return 0, 0, fmt.Errorf("unexpected reply %q", reply)
	}
	return uint(w), uint(h), nil
}

func stdinTermSize() (TermSize, error) {
	w, h, err := terminal.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		return TermSize{}, err
	}
	return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
}
