/*
 * atomicdata.go, part of goqdk.
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

package chem

import "strings"

//Atomic numbers by element symbol, H to Xe plus a few heavier
//elements common in chemistry inputs.
var symbolNumber = map[string]int{
	"H": 1, "He": 2,
	"Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9, "Ne": 10,
	"Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15, "S": 16, "Cl": 17, "Ar": 18,
	"K": 19, "Ca": 20, "Sc": 21, "Ti": 22, "V": 23, "Cr": 24, "Mn": 25, "Fe": 26,
	"Co": 27, "Ni": 28, "Cu": 29, "Zn": 30, "Ga": 31, "Ge": 32, "As": 33, "Se": 34,
	"Br": 35, "Kr": 36,
	"Rb": 37, "Sr": 38, "Y": 39, "Zr": 40, "Nb": 41, "Mo": 42, "Tc": 43, "Ru": 44,
	"Rh": 45, "Pd": 46, "Ag": 47, "Cd": 48, "In": 49, "Sn": 50, "Sb": 51, "Te": 52,
	"I": 53, "Xe": 54,
	"Cs": 55, "Ba": 56, "W": 74, "Pt": 78, "Au": 79, "Hg": 80, "Pb": 82, "Bi": 83,
}

//A map for assigning mass to elements.
//Note that just common "bio-elements" are present
var symbolMass = map[string]float64{
	"H":  1.0,
	"C":  12.01,
	"O":  16.00,
	"N":  14.01,
	"P":  30.97,
	"S":  32.06,
	"Se": 78.96,
	"K":  39.1,
	"Ca": 40.08,
	"Mg": 24.30,
	"Cl": 35.45,
	"Na": 22.99,
	"Cu": 63.55,
	"Zn": 65.38,
	"Co": 58.93,
	"Fe": 55.84,
	"Mn": 54.94,
	"Cr": 51.996,
	"Si": 28.08,
	"Be": 9.012,
	"F":  18.998,
	"Br": 79.904,
	"I":  126.90,
}

//normSymbol puts a symbol in the usual capitalization, so "CL" and "cl"
//are both found as "Cl".
func normSymbol(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

//AtomicNumber returns the atomic number for the element symbol s.
//The second value is false if the symbol is not known.
func AtomicNumber(s string) (int, bool) {
	z, ok := symbolNumber[normSymbol(s)]
	return z, ok
}

//NumElectrons returns the number of electrons of the neutral system
//formed by the atoms in a, i.e. the sum of their atomic numbers.
func NumElectrons(a Atomer) (int, error) {
	total := 0
	for i := 0; i < a.Len(); i++ {
		at := a.Atom(i)
		z, ok := AtomicNumber(at.Symbol)
		if !ok {
			return 0, &CError{"chem/NumElectrons: unknown element symbol " + at.Symbol, []string{"NumElectrons"}}
		}
		total += z
	}
	return total, nil
}

//Masses returns a slice with the masses of the atoms in a.
func Masses(a Atomer) ([]float64, error) {
	ret := make([]float64, a.Len())
	for i := range ret {
		at := a.Atom(i)
		m, ok := symbolMass[normSymbol(at.Symbol)]
		if !ok {
			return nil, &CError{"chem/Masses: no mass for element symbol " + at.Symbol, []string{"Masses"}}
		}
		ret[i] = m
	}
	return ret, nil
}
