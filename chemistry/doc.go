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

//Package chemistry loads and encodes electronic structure problems stored
//in Broombridge files, through the chemistry magics of a Q# kernel.
//
//A typical session enables the magics, loads a problem and encodes it with
//the Jordan-Wigner transformation, ready for a Q# chemistry simulation:
//
//	c, err := kernel.Open(ctx, transport)
//	if err != nil {
//		return err
//	}
//	defer c.Stop(ctx)
//	jw, err := chemistry.LoadAndEncode(ctx, c, "h2.yaml", 0, "")
//
//Broombridge files can also be read locally with ReadBroombridge and
//BroombridgeFileRead, without a kernel.
package chemistry
