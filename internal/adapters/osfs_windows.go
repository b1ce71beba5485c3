//go:build windows

package adapters

import (
	"context"
	"io/fs"
	"os"

	"golang.org/x/sys/windows"
)

// IsSymlink reports whether name is specifically an IO_REPARSE_TAG_SYMLINK
// reparse point, as opposed to a junction/mount point or an ordinary file.
func (f *OSFilesystem) IsSymlink(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tag, isReparse, err := reparseTag(name)
	if err != nil {
		return false, err
	}
	return isReparse && tag == windows.IO_REPARSE_TAG_SYMLINK, nil
}

// IsReparsePoint reports whether name carries any reparse tag at all
// (symlink, junction, or mount point).
func (f *OSFilesystem) IsReparsePoint(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, isReparse, err := reparseTag(name)
	return isReparse, err
}

func reparseTag(name string) (tag uint32, isReparse bool, err error) {
	info, lerr := os.Lstat(name)
	if lerr != nil {
		return 0, false, lerr
	}
	if info.Mode()&fs.ModeIrregular == 0 && info.Mode()&fs.ModeSymlink == 0 {
		attrs, aerr := windows.GetFileAttributes(windows.StringToUTF16Ptr(name))
		if aerr != nil {
			return 0, false, aerr
		}
		if attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT == 0 {
			return 0, false, nil
		}
	}

	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, false, err
	}
	h, err := windows.CreateFile(p,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return 0, false, err
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAXIMUM_REPARSE_DATA_BUFFER_SIZE]byte
	var bytesReturned uint32
	ioErr := windows.DeviceIoControl(h, windows.FSCTL_GET_REPARSE_POINT, nil, 0, &buf[0], uint32(len(buf)), &bytesReturned, nil)
	if ioErr != nil {
		return 0, false, ioErr
	}
	if bytesReturned < 4 {
		return 0, false, nil
	}

	tag = uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return tag, true, nil
}
