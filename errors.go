/*
 * errors.go, part of kinet.
 *
 * Copyright 2024 Tomás Aliaga <taliaga{at}stochemDOTorg>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package kinet

// Error is the interface for errors that all packages in this library implement.
// The Decorate method allows to add and retrieve info from the error, without
// changing its type or wrapping it around something else. The decoration slice
// should contain the functions in the calling stack plus, for each function,
// any relevant information, or nothing. If passed an empty string, Decorate
// just returns the current decorations.
type Error interface {
	Error() string
	Decorate(string) []string
}

// TrajError is the interface for errors in trajectories.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a do-nothing method to distinguish the harmless
// end-of-trajectory condition from other TrajErrors, so it can be filtered
// in a type switch.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination()
}

// CError is the concrete error type of the kinet main package.
type CError struct {
	msg  string
	deco []string
}

func (err CError) Error() string { return err.msg }

// Decorate adds the given string to the decoration slice, unless it is empty,
// and returns the resulting slice.
func (err CError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// errDecorate asserts that err implements Error, decorates it with the
// caller's name and returns it. It panics on a foreign error type.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}

// PanicMsg is a message used for panics. It does satisfy the error interface,
// but for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNilData         = PanicMsg("kinet: Nil data given")
	ErrShape           = PanicMsg("kinet: Dimension mismatch")
	ErrIndexOutOfRange = PanicMsg("kinet: Index out of range")
	ErrNotEnoughFrames = PanicMsg("kinet: Not enough frames in trajectory")
	ErrBrokenBackbone  = PanicMsg("kinet: Inconsistent backbone residue numbering")
)
