//go:build windows

package ch341

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

func dllName() string {
	if runtime.GOARCH == "386" {
		return "CH341DLL.DLL"
	}
	return "CH341DLLA64.DLL"
}

var (
	dll = windows.NewLazyDLL(dllName())

	procOpenDevice  = dll.NewProc("CH341OpenDevice")
	procCloseDevice = dll.NewProc("CH341CloseDevice")
	procResetDevice = dll.NewProc("CH341ResetDevice")
	procReadI2C     = dll.NewProc("CH341ReadI2C")
	procStreamI2C   = dll.NewProc("CH341StreamI2C")
)

// DLL drives the bridge through the vendor library.
type DLL struct{}

// New returns the vendor DLL driver. bus is only meaningful on linux.
func New(bus int) Driver {
	return DLL{}
}

func (DLL) Open(index int) error {
	if err := dll.Load(); err != nil {
		return &DeviceOpenError{Index: index, Err: err}
	}
	h, _, _ := procOpenDevice.Call(uintptr(index))
	if windows.Handle(h) == windows.InvalidHandle {
		return &DeviceOpenError{Index: index}
	}
	lg.Debugf("opened device %d using %s", index, dll.Name)
	return nil
}

func (DLL) ReadI2C(index int, addr, reg byte, b *byte) error {
	if err := procReadI2C.Find(); err != nil {
		return err
	}
	// Result goes to a local byte so that b stays untouched on failure.
	var v byte
	ok, _, _ := procReadI2C.Call(uintptr(index), uintptr(addr), uintptr(reg), uintptr(unsafe.Pointer(&v)))
	if ok == 0 {
		return fmt.Errorf("read from device 0x%02X register 0x%02X failed", addr, reg)
	}
	*b = v
	return nil
}

func (DLL) StreamI2C(index int, w, r []byte) error {
	if err := procStreamI2C.Find(); err != nil {
		return err
	}
	var wp, rp unsafe.Pointer
	if len(w) > 0 {
		wp = unsafe.Pointer(&w[0])
	}
	if len(r) > 0 {
		rp = unsafe.Pointer(&r[0])
	}
	ok, _, _ := procStreamI2C.Call(uintptr(index), uintptr(len(w)), uintptr(wp), uintptr(len(r)), uintptr(rp))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if ok == 0 {
		return fmt.Errorf("stream of %d/%d bytes failed", len(w), len(r))
	}
	return nil
}

func (DLL) Reset(index int) error {
	if err := procResetDevice.Find(); err != nil {
		return err
	}
	if ok, _, _ := procResetDevice.Call(uintptr(index)); ok == 0 {
		return fmt.Errorf("reset of device %d failed", index)
	}
	return nil
}

func (DLL) Close(index int) error {
	if err := procCloseDevice.Find(); err != nil {
		return err
	}
	procCloseDevice.Call(uintptr(index))
	return nil
}
