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

/*Package chem is the main package of the goqdk library. It provides atom,
geometry and molecule structures, and reads and writes the XYZ format
used to pass coordinates between quantum chemistry programs.

    **Capabilities**

    Reads and writes XYZ text and files, plain or compressed with gzip or
    zstd, including the $set/chrg/$end charge block.

    Keeps atoms and coordinates separate: coordinates are v3.Matrix
    values, backed by gonum.

    Reads multi-frame XYZ files (conformer ensembles) into a Molecule and
    picks the lowest-energy conformer from them.

    Counts electrons from the atomic numbers of a topology.

Input decks for QM programs are built by the qm sub-package, the JSON
conventions of the IQ# kernel live in chemjson, and the kernel client
itself is in the kernel package.
*/
package chem
