/*
 * doc.go, part of goqdk.
 *
 * Copyright 2024 The goqdk authors
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

//Package kernel implements a client for the IQ# Jupyter kernel.
//The client sends text commands (Q# code, magic commands such as
//%simulate, or ?name queries) through a Transport, collects the
//messages the kernel answers with, and decodes the result.
//
//Only one command can be executing at a time. Results are JSON values
//in which tuples are tagged objects, see the chemjson package.
//The Jupyter transport is in the jupyter sub-package.
package kernel
