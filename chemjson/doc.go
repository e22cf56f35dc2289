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

//Package chemjson implements the JSON conventions used to exchange data
//with the IQ# kernel. JSON has no tuple type, so fixed-arity values are
//sent as objects tagged with "@type": "tuple" and carrying their elements
//under Item1...ItemN keys. MapTuples and UnmapTuples convert between
//Tuple values and that tagged form; Marshal and Unmarshal combine them
//with encoding/json.
package chemjson
