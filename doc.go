// {{{ Copyright (c) smmap authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Package smmap provides a sliding-window memory-map manager: it lets
// callers read very large files through memory-mapped views while bounding
// the process's total mapped address space and open file-handle budget.
//
// Callers obtain a Cursor from a Manager and move it across a file with
// UseRegion; the Manager transparently maps, reuses, and unmaps fixed-size
// page-aligned Regions, evicting the least-recently-used unused Region
// whenever a configured memory or handle budget would otherwise be
// exceeded. SlidingBuffer builds a contiguous, index-and-slice addressable
// view on top of a Cursor for callers who don't want to think about
// mapping windows at all.
//
// The package is single-threaded: a Manager and the Cursors it mints are
// not safe for concurrent use without external synchronization.
package smmap

// vim: foldmethod=marker
